package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wefixit/wefixit-backend/internal/logging"
	"github.com/wefixit/wefixit-backend/internal/models"
	"github.com/wefixit/wefixit-backend/internal/services"
)

const validContact = `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","subject":"Website","message":"Hello"}`

func newContactHandler() (*ContactHandler, *memContacts, *fakeNotifier, *fakeEvents) {
	store := &memContacts{}
	notifier := &fakeNotifier{}
	events := &fakeEvents{}
	return NewContactHandler(store, notifier, events, logging.Discard()), store, notifier, events
}

func TestContactSubmit(t *testing.T) {
	h, store, notifier, events := newContactHandler()

	rec := serve(t, http.MethodPost, "/contacts/", "/contacts/", h.Submit, jsonBody(validContact), "application/json", false)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ContactResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Contact form submitted successfully", resp.Message)
	assert.False(t, resp.Contact.Read)
	assert.False(t, resp.Contact.ID.IsZero())

	require.Len(t, store.items, 1)
	require.Len(t, notifier.contacts, 1)
	require.Len(t, events.events, 1)
	assert.Equal(t, services.EventContactCreated, events.events[0].Type)
	assert.Equal(t, resp.Contact.ID.Hex(), events.events[0].ID)

	list := serve(t, http.MethodGet, "/contacts/", "/contacts/", h.List, nil, "", true)
	require.Equal(t, http.StatusOK, list.Code)
	var page ListResponse[models.Contact]
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &page))
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, resp.Contact.ID, page.Items[0].ID)
}

func TestContactSubmitSucceedsWhenMailFails(t *testing.T) {
	h, store, notifier, _ := newContactHandler()
	notifier.err = errors.New("smtp down")

	rec := serve(t, http.MethodPost, "/contacts/", "/contacts/", h.Submit, jsonBody(validContact), "application/json", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, store.items, 1)
}

func TestContactSubmitValidation(t *testing.T) {
	h, store, _, _ := newContactHandler()

	rec := serve(t, http.MethodPost, "/contacts/", "/contacts/", h.Submit,
		jsonBody(`{"firstName":"","lastName":"L","email":"not-an-email","subject":"s","message":"m"}`), "application/json", false)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	fields := map[string]bool{}
	for _, e := range resp.Errors {
		fields[e.Field] = true
	}
	assert.True(t, fields["firstName"])
	assert.True(t, fields["email"])
	assert.Empty(t, store.items)

	rec = serve(t, http.MethodPost, "/contacts/", "/contacts/", h.Submit, jsonBody(`{not json`), "application/json", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContactListFilterAndPagination(t *testing.T) {
	h, store, _, _ := newContactHandler()
	for i := 0; i < 3; i++ {
		serve(t, http.MethodPost, "/contacts/", "/contacts/", h.Submit, jsonBody(validContact), "application/json", false)
	}
	store.items[0].Read = true

	rec := serve(t, http.MethodGet, "/contacts/", "/contacts/?read=false&limit=1&offset=1", h.List, nil, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var page ListResponse[models.Contact]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.EqualValues(t, 2, page.Total)
	assert.EqualValues(t, 1, page.Limit)
	assert.EqualValues(t, 1, page.Offset)
	assert.Len(t, page.Items, 1)

	for _, q := range []string{"limit=0", "limit=101", "offset=-1", "read=maybe"} {
		rec := serve(t, http.MethodGet, "/contacts/", "/contacts/?"+q, h.List, nil, "", true)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestContactMarkReadAndDelete(t *testing.T) {
	h, store, _, _ := newContactHandler()
	serve(t, http.MethodPost, "/contacts/", "/contacts/", h.Submit, jsonBody(validContact), "application/json", false)
	id := store.items[0].ID.Hex()

	rec := serve(t, http.MethodPut, "/contacts/{id}/read", "/contacts/"+id+"/read", h.MarkRead, nil, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, store.items[0].Read)

	rec = serve(t, http.MethodDelete, "/contacts/{id}", "/contacts/"+id, h.Delete, nil, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.items)

	rec = serve(t, http.MethodDelete, "/contacts/{id}", "/contacts/"+id, h.Delete, nil, "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, http.MethodDelete, "/contacts/{id}", "/contacts/not-an-id", h.Delete, nil, "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoreFailureIsGeneric(t *testing.T) {
	h, store, _, _ := newContactHandler()
	store.err = errors.New("connection reset by peer at 10.0.0.5")

	rec := serve(t, http.MethodGet, "/contacts/", "/contacts/", h.List, nil, "", true)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}
