package httpx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Title   string `json:"title" validate:"required"`
	ISBN    string `json:"isbn" validate:"required,isbn"`
	Email   string `json:"customer_email" validate:"omitempty,email"`
	Edition int    `json:"edition" validate:"min=1"`
}

func TestValidateStruct_Valid(t *testing.T) {
	errs := ValidateStruct(sampleRequest{
		Title:   "Clean Code",
		ISBN:    "9780132350884",
		Email:   "joao@x.com",
		Edition: 1,
	})

	assert.Nil(t, errs)
}

func TestValidateStruct_CollectsFieldMessages(t *testing.T) {
	errs := ValidateStruct(sampleRequest{ISBN: "12-34", Email: "nope", Edition: 0})

	require.Len(t, errs, 4)
	assert.Equal(t, FieldError{Field: "title", Message: "'title' é obrigatório"}, errs[0])
	assert.Equal(t, FieldError{Field: "isbn", Message: "'isbn' deve ter 10 ou 13 digitos"}, errs[1])
	assert.Equal(t, FieldError{Field: "customer_email", Message: "'customer_email' deve ser um email válido"}, errs[2])
	assert.Equal(t, FieldError{Field: "edition", Message: "'edition' deve ser maior ou igual a 1"}, errs[3])
}

func TestValidateISBN(t *testing.T) {
	type isbnOnly struct {
		ISBN string `json:"isbn" validate:"isbn"`
	}

	assert.Nil(t, ValidateStruct(isbnOnly{ISBN: "0132350882"}), "10 digits")
	assert.Nil(t, ValidateStruct(isbnOnly{ISBN: "9780132350884"}), "13 digits")

	assert.NotNil(t, ValidateStruct(isbnOnly{ISBN: "97801323508"}), "11 digits")
	assert.NotNil(t, ValidateStruct(isbnOnly{ISBN: "978-0132350884"}), "hyphens")
	assert.NotNil(t, ValidateStruct(isbnOnly{ISBN: "abcdefghij"}), "letters")
}
