package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"contacts-server/internal/managers"
	"contacts-server/internal/schemas"
	"contacts-server/internal/utils"
)

// ContactHdl defines the interface for handling contact-related HTTP requests.
type ContactHdl interface {
	CreateContact(c *gin.Context)
	GetContacts(c *gin.Context)
	GetContact(c *gin.Context)
	UpdateContact(c *gin.Context)
	DeleteContact(c *gin.Context)
	SearchContacts(c *gin.Context)
	UpcomingBirthdays(c *gin.Context)
}

// ContactHandler provides methods to handle contact-related HTTP requests.
// Every query is scoped by the authenticated user's id; a contact owned by
// another user is indistinguishable from one that does not exist.
type ContactHandler struct {
	DatabaseManager managers.DatabaseMgr
}

var errContactNotFound = errors.New("contact does not exist for this user")
var errNoUser = errors.New("no authenticated user")

const contactColumns = "contact_id, user_id, first_name, last_name, email, phone_number, birth_date, additional_info, created_at, updated_at"

// NewContactHandler returns a new ContactHandler with the provided database manager.
func NewContactHandler(databaseManager managers.DatabaseMgr) ContactHdl {
	return &ContactHandler{
		DatabaseManager: databaseManager,
	}
}

// CreateContact inserts a new contact for the authenticated user and returns it.
func (handler *ContactHandler) CreateContact(c *gin.Context) {
	user, ok := utils.GetCurrentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errNoUser)
		return
	}
	contactRequest, ok := utils.GetSanitizedPayload[*schemas.ContactRequest](c)
	if !ok {
		return
	}

	birthDate, err := time.Parse(time.DateOnly, contactRequest.BirthDate)
	if err != nil {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	tx := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx)

	contact := &schemas.Contact{
		UserID:         user.ID,
		FirstName:      contactRequest.FirstName,
		LastName:       contactRequest.LastName,
		Email:          contactRequest.Email,
		PhoneNumber:    contactRequest.PhoneNumber,
		BirthDate:      &birthDate,
		AdditionalInfo: contactRequest.AdditionalInfo,
	}

	queryString := `INSERT INTO contacts (user_id, first_name, last_name, email, phone_number, birth_date, additional_info)
					VALUES ($1, $2, $3, $4, $5, $6, $7)
					RETURNING contact_id, created_at, updated_at`
	err = tx.QueryRow(c, queryString, contact.UserID, contact.FirstName, contact.LastName, contact.Email,
		contact.PhoneNumber, contact.BirthDate, contact.AdditionalInfo).
		Scan(&contact.ID, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx); err != nil {
		return
	}

	utils.WriteAndLogResponse(c, contactToDTO(contact), http.StatusCreated)
}

// GetContacts returns all contacts of the authenticated user.
func (handler *ContactHandler) GetContacts(c *gin.Context) {
	user, ok := utils.GetCurrentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errNoUser)
		return
	}

	queryString := "SELECT " + contactColumns + " FROM contacts WHERE user_id = $1 ORDER BY contact_id"
	handler.listContacts(c, queryString, user.ID)
}

// GetContact returns a single contact of the authenticated user by id.
func (handler *ContactHandler) GetContact(c *gin.Context) {
	user, ok := utils.GetCurrentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errNoUser)
		return
	}
	contactID, ok := parseContactID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithDeadline(c.Request.Context(), time.Now().Add(10*time.Second))
	defer cancel()

	queryString := "SELECT " + contactColumns + " FROM contacts WHERE contact_id = $1 AND user_id = $2"
	row := handler.DatabaseManager.GetPool().QueryRow(ctx, queryString, contactID, user.ID)

	contact, err := scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.ContactNotFound, http.StatusNotFound, errContactNotFound)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(c, contactToDTO(contact), http.StatusOK)
}

// UpdateContact replaces the fields of a contact owned by the authenticated user.
func (handler *ContactHandler) UpdateContact(c *gin.Context) {
	user, ok := utils.GetCurrentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errNoUser)
		return
	}
	contactID, ok := parseContactID(c)
	if !ok {
		return
	}
	contactRequest, ok := utils.GetSanitizedPayload[*schemas.ContactRequest](c)
	if !ok {
		return
	}

	birthDate, err := time.Parse(time.DateOnly, contactRequest.BirthDate)
	if err != nil {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	tx := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx)

	queryString := `UPDATE contacts
					SET first_name = $1, last_name = $2, email = $3, phone_number = $4, birth_date = $5,
						additional_info = $6, updated_at = now()
					WHERE contact_id = $7 AND user_id = $8
					RETURNING ` + contactColumns
	row := tx.QueryRow(c, queryString, contactRequest.FirstName, contactRequest.LastName, contactRequest.Email,
		contactRequest.PhoneNumber, birthDate, contactRequest.AdditionalInfo, contactID, user.ID)

	contact, err := scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.ContactNotFound, http.StatusNotFound, errContactNotFound)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx); err != nil {
		return
	}

	utils.WriteAndLogResponse(c, contactToDTO(contact), http.StatusOK)
}

// DeleteContact removes a contact owned by the authenticated user.
func (handler *ContactHandler) DeleteContact(c *gin.Context) {
	user, ok := utils.GetCurrentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errNoUser)
		return
	}
	contactID, ok := parseContactID(c)
	if !ok {
		return
	}

	tx := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx)

	queryString := "DELETE FROM contacts WHERE contact_id = $1 AND user_id = $2"
	commandTag, err := tx.Exec(c, queryString, contactID, user.ID)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if commandTag.RowsAffected() == 0 {
		utils.WriteAndLogError(c, schemas.ContactNotFound, http.StatusNotFound, errContactNotFound)
		return
	}

	if err = utils.CommitTransaction(c, tx); err != nil {
		return
	}

	c.Status(http.StatusNoContent)
}

// SearchContacts returns the user's contacts whose first name, last name or
// email matches the query, case-insensitively.
func (handler *ContactHandler) SearchContacts(c *gin.Context) {
	user, ok := utils.GetCurrentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errNoUser)
		return
	}
	query := c.Query("query")

	queryString := "SELECT " + contactColumns + ` FROM contacts
					WHERE user_id = $1 AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)
					ORDER BY contact_id`
	handler.listContacts(c, queryString, user.ID, "%"+query+"%")
}

// UpcomingBirthdays returns the user's contacts whose birth date falls within
// the next seven days.
func (handler *ContactHandler) UpcomingBirthdays(c *gin.Context) {
	user, ok := utils.GetCurrentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errNoUser)
		return
	}

	queryString := "SELECT " + contactColumns + ` FROM contacts
					WHERE user_id = $1 AND birth_date BETWEEN CURRENT_DATE AND CURRENT_DATE + INTERVAL '7 days'
					ORDER BY birth_date`
	handler.listContacts(c, queryString, user.ID)
}

// listContacts runs a multi-row contact query against the pool and writes the
// resulting DTO slice. An empty result is a 200 with an empty array.
func (handler *ContactHandler) listContacts(c *gin.Context, queryString string, queryArgs ...interface{}) {
	ctx, cancel := context.WithDeadline(c.Request.Context(), time.Now().Add(10*time.Second))
	defer cancel()

	rows, err := handler.DatabaseManager.GetPool().Query(ctx, queryString, queryArgs...)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()

	contacts := make([]*schemas.ContactDTO, 0)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		contacts = append(contacts, contactToDTO(contact))
	}
	if err = rows.Err(); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(c, contacts, http.StatusOK)
}

func parseContactID(c *gin.Context) (int64, bool) {
	contactID, err := strconv.ParseInt(c.Param("contactId"), 10, 64)
	if err != nil {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
		return 0, false
	}
	return contactID, true
}

func scanContact(row pgx.Row) (*schemas.Contact, error) {
	contact := &schemas.Contact{}
	err := row.Scan(&contact.ID, &contact.UserID, &contact.FirstName, &contact.LastName, &contact.Email,
		&contact.PhoneNumber, &contact.BirthDate, &contact.AdditionalInfo, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return contact, nil
}

func contactToDTO(contact *schemas.Contact) *schemas.ContactDTO {
	dto := &schemas.ContactDTO{
		ID:             contact.ID,
		UserID:         contact.UserID,
		FirstName:      contact.FirstName,
		LastName:       contact.LastName,
		Email:          contact.Email,
		PhoneNumber:    contact.PhoneNumber,
		AdditionalInfo: contact.AdditionalInfo,
		CreatedAt:      contact.CreatedAt,
		UpdatedAt:      contact.UpdatedAt,
	}
	if contact.BirthDate != nil {
		dto.BirthDate = contact.BirthDate.Format(time.DateOnly)
	}
	return dto
}
