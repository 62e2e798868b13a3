package user

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultListLimit    = 10
	defaultBirthdayDays = 7
)

type Handler struct {
	service  *Service
	validate *validator.Validate
}

// userRequest is the body of POST /users and PUT /users/:id. Every field is
// required; updates replace the whole record.
type userRequest struct {
	FirstName  string `json:"first_name" validate:"required,min=3,max=50"`
	SecondName string `json:"second_name" validate:"required,min=3,max=50"`
	EmailAdd   string `json:"email_add" validate:"required,email,max=100"`
	PhoneNum   string `json:"phone_num" validate:"required,max=25"`
	BirthDate  string `json:"birth_date" validate:"required,datetime=2006-01-02"`
}

type listQuery struct {
	Limit  int `json:"limit" validate:"min=10,max=500"`
	Offset int `json:"offset" validate:"min=0"`
}

type birthdayQuery struct {
	Limit int `json:"limit" validate:"min=7,max=100"`
}

type searchQuery struct {
	FirstName  *string `json:"first_name" validate:"omitnil,min=3"`
	SecondName *string `json:"second_name" validate:"omitnil,min=3"`
	EmailAdd   *string `json:"email_add" validate:"omitnil,min=3"`
}

type userResponse struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"first_name"`
	SecondName string `json:"second_name"`
	EmailAdd   string `json:"email_add"`
	PhoneNum   string `json:"phone_num"`
	BirthDate  string `json:"birth_date"`
}

func NewHandler(service *Service) *Handler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{service: service, validate: validate}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	// fixed paths first so they are not captured by :id
	app.Get("/users", h.getUsers)
	app.Get("/users/birth_date", h.getUsersByBirthday)
	app.Get("/users/search_by", h.searchUsers)
	app.Get("/users/:id", h.getUser)
	app.Post("/users", h.createUser)
	app.Put("/users/:id", h.updateUser)
	app.Delete("/users/:id", h.deleteUser)
}

func (h *Handler) getUsers(c *fiber.Ctx) error {
	var q listQuery
	var err error
	if q.Limit, err = queryInt(c, "limit", defaultListLimit); err != nil {
		return writeError(c, err)
	}
	if q.Offset, err = queryInt(c, "offset", 0); err != nil {
		return writeError(c, err)
	}
	if err := h.check(q); err != nil {
		return writeError(c, err)
	}

	users, err := h.service.List(c.UserContext(), q.Limit, q.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toResponses(users))
}

func (h *Handler) getUsersByBirthday(c *fiber.Ctx) error {
	var q birthdayQuery
	var err error
	if q.Limit, err = queryInt(c, "limit", defaultBirthdayDays); err != nil {
		return writeError(c, err)
	}
	if err := h.check(q); err != nil {
		return writeError(c, err)
	}

	users, err := h.service.BirthdaysWithin(c.UserContext(), q.Limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toResponses(users))
}

func (h *Handler) searchUsers(c *fiber.Ctx) error {
	q := searchQuery{
		FirstName:  optionalQuery(c, "first_name"),
		SecondName: optionalQuery(c, "second_name"),
		EmailAdd:   optionalQuery(c, "email_add"),
	}
	if err := h.check(q); err != nil {
		return writeError(c, err)
	}

	users, err := h.service.Search(c.UserContext(), SearchCriteria{
		FirstName:  q.FirstName,
		SecondName: q.SecondName,
		EmailAdd:   q.EmailAdd,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toResponses(users))
}

func (h *Handler) getUser(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return writeError(c, err)
	}

	user, err := h.service.GetByID(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toResponse(user))
}

func (h *Handler) createUser(c *fiber.Ctx) error {
	user, err := h.parseUser(c)
	if err != nil {
		return writeError(c, err)
	}

	created, err := h.service.Create(c.UserContext(), user)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toResponse(created))
}

func (h *Handler) updateUser(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return writeError(c, err)
	}
	user, err := h.parseUser(c)
	if err != nil {
		return writeError(c, err)
	}

	updated, err := h.service.Update(c.UserContext(), userID, user)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toResponse(updated))
}

func (h *Handler) deleteUser(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return writeError(c, err)
	}

	removed, err := h.service.Delete(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toResponse(removed))
}

func (h *Handler) parseUser(c *fiber.Ctx) (User, error) {
	payload := new(userRequest)
	if err := c.BodyParser(payload); err != nil {
		return User{}, badRequest(err.Error())
	}
	if err := h.check(payload); err != nil {
		return User{}, err
	}

	birthDate, err := time.Parse(DateLayout, payload.BirthDate)
	if err != nil {
		return User{}, invalidInput("birth_date failed on 'datetime'")
	}

	return User{
		FirstName:  payload.FirstName,
		SecondName: payload.SecondName,
		EmailAdd:   payload.EmailAdd,
		PhoneNum:   payload.PhoneNum,
		BirthDate:  birthDate,
	}, nil
}

// check runs struct validation and converts failures into a 422 requestError.
func (h *Handler) check(v any) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return invalidInput(details...)
}

// requestError is a client error detected before the service is called.
type requestError struct {
	status  int
	message string
	details []string
}

func (e *requestError) Error() string {
	if len(e.details) == 0 {
		return e.message
	}
	return e.message + ": " + strings.Join(e.details, "; ")
}

func badRequest(message string) *requestError {
	return &requestError{status: fiber.StatusBadRequest, message: message}
}

func invalidInput(details ...string) *requestError {
	return &requestError{status: fiber.StatusUnprocessableEntity, message: "validation failed", details: details}
}

func parseUserID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, badRequest(fmt.Sprintf("invalid user id %q", c.Params("id")))
	}
	if id < 1 {
		return 0, invalidInput("id failed on 'min'")
	}
	return id, nil
}

func writeError(c *fiber.Ctx, err error) error {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		body := fiber.Map{"message": reqErr.message}
		if len(reqErr.details) > 0 {
			body["errors"] = reqErr.details
		}
		return c.Status(reqErr.status).JSON(body)
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "NOT FOUND"})
	case errors.Is(err, ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal server error"})
	}
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(key + " must be an integer")
	}
	return v, nil
}

// optionalQuery returns nil when key is absent from the query string.
func optionalQuery(c *fiber.Ctx, key string) *string {
	if !c.Context().QueryArgs().Has(key) {
		return nil
	}
	v := c.Query(key)
	return &v
}

func toResponse(user User) userResponse {
	return userResponse{
		ID:         user.ID,
		FirstName:  user.FirstName,
		SecondName: user.SecondName,
		EmailAdd:   user.EmailAdd,
		PhoneNum:   user.PhoneNum,
		BirthDate:  user.BirthDate.Format(DateLayout),
	}
}

func toResponses(users []User) []userResponse {
	response := make([]userResponse, 0, len(users))
	for _, user := range users {
		response = append(response, toResponse(user))
	}
	return response
}
