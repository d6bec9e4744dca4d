package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/alvinbaena/pass-audit/internal/store"
	"github.com/alvinbaena/pass-audit/pkg/audit"
	"github.com/gin-gonic/gin"
)

// Store is the part of store.PasswordStore the audit endpoint reads from.
type Store interface {
	Select(root, name, ignoreFile string) ([]string, error)
	ReadAll(ctx context.Context, paths []string) (audit.Entries, []error)
}

type auditApi struct {
	store      Store
	auditor    *audit.Auditor
	ignoreFile string
}

func (a *auditApi) audit(c *gin.Context) {
	var req auditRequest
	// An empty body audits the whole store.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	paths, err := a.store.Select(req.Path, req.Name, a.ignoreFile)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, store.ErrNotInStore) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	entries, skipped := a.store.ReadAll(ctx, paths)

	report, err := a.auditor.Run(ctx, entries)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	resp := newAuditResponse(report)
	resp.Skipped = make([]string, 0, len(skipped))
	for _, err := range skipped {
		var entryErr *store.EntryError
		if errors.As(err, &entryErr) {
			resp.Skipped = append(resp.Skipped, entryErr.Path)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// bearerAuth rejects requests without "Authorization: Bearer <token>". An
// empty token rejects everything.
func bearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.Header("WWW-Authenticate", `Bearer realm="pass-audit"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid API token"})
			return
		}
		c.Next()
	}
}

// RegisterAuditApi adds POST /audit to group, guarded by the bearer token.
func RegisterAuditApi(group *gin.RouterGroup, s Store, auditor *audit.Auditor, ignoreFile, token string) {
	a := &auditApi{store: s, auditor: auditor, ignoreFile: ignoreFile}

	group.POST("/audit", bearerAuth(token), a.audit)
}
