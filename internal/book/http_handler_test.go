package book

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"libraryapi/internal/page"
	"libraryapi/internal/testutil"
)

func newHandlerWithMocks(t *testing.T) (*HTTPHandler, *MockRepository, *MockActiveLoanChecker) {
	ctrl := gomock.NewController(t)
	books := NewMockRepository(ctrl)
	loans := NewMockActiveLoanChecker(ctrl)
	return NewHTTPHandler(NewService(books, loans)), books, loans
}

var storedBook = Book{
	ID:        1,
	Title:     "Clean Code",
	ISBN:      "9780132350884",
	Author:    "Robert C. Martin",
	Edition:   1,
	Publisher: "Pearson",
}

func TestHTTPHandler_List(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler, books, _ := newHandlerWithMocks(t)
		books.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(page.New(0, 10, 1, []Book{storedBook}), nil)

		w := httptest.NewRecorder()
		handler.List(w, testutil.NewRequest(http.MethodGet, "/api/books?title=clean", nil))

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, float64(1), resp.Body["total"])
		assert.Len(t, resp.Body["items"], 1)
	})

	t.Run("rejects unknown sort field", func(t *testing.T) {
		handler, _, _ := newHandlerWithMocks(t)

		w := httptest.NewRecorder()
		handler.List(w, testutil.NewRequest(http.MethodGet, "/api/books?sort=nope", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects non-numeric edition", func(t *testing.T) {
		handler, _, _ := newHandlerWithMocks(t)

		w := httptest.NewRecorder()
		handler.List(w, testutil.NewRequest(http.MethodGet, "/api/books?edition=first", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHTTPHandler_GetByID(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler, books, _ := newHandlerWithMocks(t)
		books.EXPECT().GetByID(gomock.Any(), int64(1)).Return(storedBook, nil)

		w := httptest.NewRecorder()
		r := testutil.NewRequest(http.MethodGet, "/api/books/1", nil)
		r.SetPathValue("id", "1")
		handler.GetByID(w, r)

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "Clean Code", resp.Body["title"])
	})

	t.Run("not found", func(t *testing.T) {
		handler, books, _ := newHandlerWithMocks(t)
		books.EXPECT().GetByID(gomock.Any(), int64(9)).Return(Book{}, ErrNotFound)

		w := httptest.NewRecorder()
		r := testutil.NewRequest(http.MethodGet, "/api/books/9", nil)
		r.SetPathValue("id", "9")
		handler.GetByID(w, r)

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, "Livro não foi encontrado", resp.Body["message"])
	})
}

func TestHTTPHandler_Create(t *testing.T) {
	body := map[string]any{
		"title":     "Clean Code",
		"isbn":      "9780132350884",
		"author":    "Robert C. Martin",
		"edition":   1,
		"publisher": "Pearson",
	}

	t.Run("created", func(t *testing.T) {
		handler, books, _ := newHandlerWithMocks(t)
		books.EXPECT().ExistsByISBN(gomock.Any(), "9780132350884").Return(false, nil)
		books.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		w := httptest.NewRecorder()
		handler.Create(w, testutil.NewRequest(http.MethodPost, "/api/books", body))

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusCreated, resp.Code)
		assert.Equal(t, "9780132350884", resp.Body["isbn"])
		assert.NotEmpty(t, resp.Body["created_at"])
		assert.NotEmpty(t, resp.Body["updated_at"])
	})

	t.Run("duplicate isbn", func(t *testing.T) {
		handler, books, _ := newHandlerWithMocks(t)
		books.EXPECT().ExistsByISBN(gomock.Any(), "9780132350884").Return(true, nil)

		w := httptest.NewRecorder()
		handler.Create(w, testutil.NewRequest(http.MethodPost, "/api/books", body))

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "Isbn já foi cadastrado", resp.Body["message"])
	})

	t.Run("validation failure", func(t *testing.T) {
		handler, _, _ := newHandlerWithMocks(t)

		w := httptest.NewRecorder()
		handler.Create(w, testutil.NewRequest(http.MethodPost, "/api/books", map[string]any{
			"isbn":    "123",
			"edition": 0,
		}))

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.NotEmpty(t, resp.Body["errors"])
	})
}

func TestHTTPHandler_Update(t *testing.T) {
	handler, books, _ := newHandlerWithMocks(t)
	books.EXPECT().GetByID(gomock.Any(), int64(1)).Return(storedBook, nil)
	books.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	w := httptest.NewRecorder()
	r := testutil.NewRequest(http.MethodPut, "/api/books/1", map[string]any{
		"title":     "Clean Code",
		"author":    "Robert C. Martin",
		"edition":   2,
		"publisher": "Pearson",
	})
	r.SetPathValue("id", "1")
	handler.Update(w, r)

	resp := testutil.RecordHTTPResponse(w)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, float64(2), resp.Body["edition"])
}

func TestHTTPHandler_Delete(t *testing.T) {
	t.Run("active loan blocks deletion", func(t *testing.T) {
		handler, books, loans := newHandlerWithMocks(t)
		books.EXPECT().GetByID(gomock.Any(), int64(1)).Return(storedBook, nil)
		loans.EXPECT().ExistsActiveByBookID(gomock.Any(), int64(1)).Return(true, nil)

		w := httptest.NewRecorder()
		r := testutil.NewRequest(http.MethodDelete, "/api/books/1", nil)
		r.SetPathValue("id", "1")
		handler.Delete(w, r)

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "Não é possivel deletar um livro com empréstimo ativo", resp.Body["message"])
	})

	t.Run("no content on success", func(t *testing.T) {
		handler, books, loans := newHandlerWithMocks(t)
		books.EXPECT().GetByID(gomock.Any(), int64(1)).Return(storedBook, nil)
		loans.EXPECT().ExistsActiveByBookID(gomock.Any(), int64(1)).Return(false, nil)
		books.EXPECT().Delete(gomock.Any(), int64(1)).Return(nil)

		w := httptest.NewRecorder()
		r := testutil.NewRequest(http.MethodDelete, "/api/books/1", nil)
		r.SetPathValue("id", "1")
		handler.Delete(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
