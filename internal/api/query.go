// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/alvinbaena/pass-audit/pkg/audit"
	"github.com/alvinbaena/pass-audit/pkg/hibp"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type queryApi struct {
	oracle    audit.RangeFetcher
	estimator audit.Estimator
}

// errorStatus is 502 when the range API could not be reached.
func errorStatus(err error) int {
	var netErr *hibp.NetworkError
	if errors.As(err, &netErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (q *queryApi) lookup(ctx context.Context, hash string) (int64, bool, error) {
	bucket, err := q.oracle.FetchRange(ctx, hibp.Prefix(hash))
	if err != nil {
		return 0, false, err
	}
	count, found := bucket.Lookup(hash)
	return count, found, nil
}

func (q *queryApi) checkPassword(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	count, found, err := q.lookup(c.Request.Context(), hibp.Hash(req.Password))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	resp := queryResponse{Pwned: found, Count: count}
	if q.estimator != nil {
		if strength, err := q.estimator.Estimate(req.Password, nil); err == nil {
			resp.Strength = &strength
		} else {
			log.Warn().Err(err).Msg("error estimating password strength")
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (q *queryApi) checkHash(c *gin.Context) {
	var req hashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !hibp.ValidHash(req.Hash) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "input is not a valid SHA1 Hexadecimal hash"})
		return
	}

	count, found, err := q.lookup(c.Request.Context(), strings.ToUpper(req.Hash))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, queryResponse{Pwned: found, Count: count})
}

// RegisterQueryApi adds POST /password and /hash to group. estimator may be nil.
func RegisterQueryApi(group *gin.RouterGroup, oracle audit.RangeFetcher, estimator audit.Estimator) {
	q := &queryApi{oracle: oracle, estimator: estimator}

	group.POST("/password", q.checkPassword)
	group.POST("/hash", q.checkHash)
}
