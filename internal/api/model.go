package api

import "github.com/alvinbaena/pass-audit/pkg/audit"

type queryRequest struct {
	Password string `json:"password" binding:"required"`
}

type queryResponse struct {
	Pwned    bool            `json:"pwned"`
	Count    int64           `json:"count"`
	Strength *audit.Strength `json:"strength,omitempty"`
}

type hashRequest struct {
	Hash string `json:"hash" binding:"required"`
}

// auditRequest selects the entries like the command line: an optional
// subfolder or entry and a file name glob.
type auditRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// auditResponse never carries passwords or the estimator match sequence,
// which holds pieces of the password.
type auditResponse struct {
	ID              string                 `json:"id"`
	Tested          int                    `json:"tested"`
	Breached        []breachedEntry        `json:"breached"`
	Weak            []weakEntry            `json:"weak"`
	Duplicated      []audit.DuplicateGroup `json:"duplicated"`
	StrengthSkipped bool                   `json:"strengthSkipped"`
	Skipped         []string               `json:"skipped"`
}

type breachedEntry struct {
	Path  string `json:"path"`
	Count int64  `json:"count"`
}

type weakEntry struct {
	Path             string  `json:"path"`
	Score            int     `json:"score"`
	Guesses          float64 `json:"guesses"`
	CrackTimeDisplay string  `json:"crackTimeDisplay"`
}

func newAuditResponse(r *audit.Report) auditResponse {
	resp := auditResponse{
		ID:              r.ID,
		Tested:          r.Tested,
		Breached:        make([]breachedEntry, 0, len(r.Breached)),
		Weak:            make([]weakEntry, 0, len(r.Weak)),
		Duplicated:      r.Duplicated,
		StrengthSkipped: r.StrengthSkipped,
	}
	for _, b := range r.Breached {
		resp.Breached = append(resp.Breached, breachedEntry{Path: b.Path, Count: b.Count})
	}
	for _, w := range r.Weak {
		resp.Weak = append(resp.Weak, weakEntry{
			Path:             w.Path,
			Score:            w.Strength.Score,
			Guesses:          w.Strength.Guesses,
			CrackTimeDisplay: w.Strength.CrackTimeDisplay,
		})
	}
	return resp
}
