package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "refdata/internal/errors"
	"refdata/internal/models"
	"refdata/internal/services"
)

type mockProcessService struct {
	getFn func(id string) (*models.ProcessRequest, error)
}

func (m *mockProcessService) Get(_ context.Context, id string) (*models.ProcessRequest, error) {
	if m.getFn != nil {
		return m.getFn(id)
	}
	return &models.ProcessRequest{}, nil
}

var _ services.ProcessServicer = (*mockProcessService)(nil)

func TestProcessHandler_Get(t *testing.T) {
	setup := func(svc services.ProcessServicer, perms ...string) *gin.Engine {
		r := gin.New()
		r.GET("/process/get/:id", injectUser("u-1", perms...), NewProcessHandler(svc).Get)
		return r
	}
	quoteImport := &mockProcessService{getFn: func(id string) (*models.ProcessRequest, error) {
		return &models.ProcessRequest{ProcessID: 3, Entity: "quote", Status: models.ProcessStatusRunning}, nil
	}}

	t.Run("returns the process request", func(t *testing.T) {
		result := assertEnvelope(t, doRequest(setup(quoteImport, "QUOTE_READ"), "GET", "/process/get/p-1", ""), http.StatusOK, true)
		data := result["data"].(map[string]interface{})
		if data["processId"] != float64(3) || data["status"] != "Running" {
			t.Errorf("unexpected process %v", data)
		}
	})

	t.Run("requires read on the imported entity", func(t *testing.T) {
		result := assertEnvelope(t, doRequest(setup(quoteImport, "PARTY_READ", "QUOTE_CREATE"), "GET", "/process/get/p-1", ""), http.StatusForbidden, false)
		if result["message"] != "not allowed" {
			t.Errorf("unexpected message %v", result["message"])
		}
	})

	t.Run("unknown entity is never readable", func(t *testing.T) {
		svc := &mockProcessService{getFn: func(string) (*models.ProcessRequest, error) {
			return &models.ProcessRequest{ProcessID: 4, Entity: "ledger"}, nil
		}}

		assertEnvelope(t, doRequest(setup(svc, "QUOTE_READ"), "GET", "/process/get/p-1", ""), http.StatusForbidden, false)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &mockProcessService{getFn: func(string) (*models.ProcessRequest, error) {
			return nil, apperrors.WithMessage(apperrors.ErrNotFound, "process request not found")
		}}

		result := assertEnvelope(t, doRequest(setup(svc), "GET", "/process/get/p-1", ""), http.StatusOK, false)
		if result["message"] != "process request not found" {
			t.Errorf("unexpected message %v", result["message"])
		}
	})
}
