package processor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"talent-bridge-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offerLetterRequest() CreateTemplateRequest {
	return CreateTemplateRequest{
		Name:     "Offer letter",
		Category: "hr",
		Body:     "Dear {name}, welcome to {team}. Start: {start_date}.",
		Variables: []types.VariableSpec{
			{Name: "name", Required: true},
			{Name: "team", Required: true, DefaultValue: strPtr("Platform")},
			{Name: "start_date", Required: false},
		},
	}
}

func TestCreateTemplate_PreservesVariableOrder(t *testing.T) {
	store := NewMockTemplateStore()
	svc := NewDocumentService(store)

	def, err := svc.CreateTemplate(context.Background(), offerLetterRequest())
	require.NoError(t, err)

	assert.Equal(t, uint64(1), def.ID)
	require.Len(t, def.Variables, 3)
	assert.Equal(t, "name", def.Variables[0].Name)
	assert.Equal(t, "team", def.Variables[1].Name)
	assert.Equal(t, "start_date", def.Variables[2].Name)
	assert.True(t, store.templates[1].IsActive)
}

func TestCreateTemplate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateTemplateRequest)
	}{
		{"空名称", func(r *CreateTemplateRequest) { r.Name = "  " }},
		{"空正文", func(r *CreateTemplateRequest) { r.Body = "" }},
		{"非法变量名", func(r *CreateTemplateRequest) { r.Variables[0].Name = "first name" }},
		{"重复变量", func(r *CreateTemplateRequest) { r.Variables[1].Name = "name" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMockTemplateStore()
			svc := NewDocumentService(store)
			req := offerLetterRequest()
			tt.mutate(&req)

			_, err := svc.CreateTemplate(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Empty(t, store.templates)
		})
	}
}

func TestListTemplates(t *testing.T) {
	store := NewMockTemplateStore()
	svc := NewDocumentService(store)
	_, err := svc.CreateTemplate(context.Background(), offerLetterRequest())
	require.NoError(t, err)

	defs, err := svc.ListTemplates(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "Offer letter", defs[0].Name)
}

func TestGenerateDocument_RendersAndEnqueues(t *testing.T) {
	store := NewMockTemplateStore()
	routing := EventRouting{Exchange: "ex", CVAnalyzedRoutingKey: "cv", DocGeneratedRoutingKey: "doc.generated"}
	svc := NewDocumentService(store, WithEventRouting(routing), WithClock(func() time.Time { return fixedNow }))
	def, err := svc.CreateTemplate(context.Background(), offerLetterRequest())
	require.NoError(t, err)

	doc, err := svc.GenerateDocument(context.Background(), def.ID, map[string]string{"name": "Ada"}, "hr@example.com")
	require.NoError(t, err)

	assert.Equal(t, "Dear Ada, welcome to Platform. Start: {start_date}.", doc.Content)
	assert.Equal(t, "hr@example.com", doc.CreatedBy)
	require.Len(t, store.documents, 1)

	var values map[string]string
	require.NoError(t, json.Unmarshal(store.documents[0].InputValues, &values))
	assert.Equal(t, map[string]string{"name": "Ada"}, values)

	require.Len(t, store.outbox, 1)
	msg := store.outbox[0]
	assert.Equal(t, "document.generated", msg.EventType)
	assert.Equal(t, "ex", msg.TargetExchange)
	assert.Equal(t, "doc.generated", msg.TargetRoutingKey)

	var event types.DocumentGeneratedEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	assert.Equal(t, doc.ID, event.DocumentID)
	assert.Equal(t, def.ID, event.TemplateID)
}

func TestGenerateDocument_MissingVariablePersistsNothing(t *testing.T) {
	store := NewMockTemplateStore()
	svc := NewDocumentService(store)
	def, err := svc.CreateTemplate(context.Background(), offerLetterRequest())
	require.NoError(t, err)

	_, err = svc.GenerateDocument(context.Background(), def.ID, map[string]string{"team": "Core"}, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingVariable))

	var missing *MissingVariableError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "name", missing.Name)
	assert.Empty(t, store.documents)
	assert.Empty(t, store.outbox)
}

func TestGenerateDocument_UnknownTemplate(t *testing.T) {
	svc := NewDocumentService(NewMockTemplateStore())

	_, err := svc.GenerateDocument(context.Background(), 404, nil, "")
	assert.True(t, errors.Is(err, ErrTemplateNotFound))
}
