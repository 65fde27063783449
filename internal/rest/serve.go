// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package rest

import (
	"bytes"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/mattrussellcrick/bigwarp/internal/ops"
	"github.com/mattrussellcrick/bigwarp/web"
)

// Returns a router serving the geometry operators over JSON, with settings from c
func NewRouter(c *ops.Context) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.GET("/", getIndex)
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.POST("/bbox", postOperator(c, func() ops.Operator { return ops.NewOpBoundingBoxDefault() }))
			v1.POST("/init", postOperator(c, func() ops.Operator { return ops.NewOpInitTransformDefault() }))
			v1.POST("/batch", postBatch(c))
		}
	}
	return r
}

// Listens and serves on the given address, e.g. ":8080"
func Serve(addr string, c *ops.Context) error {
	return NewRouter(c).Run(addr)
}

func getIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

func getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

// Serializes writes from concurrent operators into one buffer
type syncBuffer struct {
	mu  sync.Mutex
	buf *bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

// A request-scoped copy of the server context, logging into a buffer returned to the client
func requestContext(base *ops.Context, log *bytes.Buffer) *ops.Context {
	c := *base
	c.Log = &syncBuffer{buf: log}
	return &c
}

func postOperator(base *ops.Context, factory ops.OperatorFactory) gin.HandlerFunc {
	return func(c *gin.Context) {
		op := factory()
		if err := c.ShouldBindJSON(op); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var log bytes.Buffer
		r, err := op.Apply(requestContext(base, &log))
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "log": log.String()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": r, "log": log.String()})
	}
}

func postBatch(base *ops.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		batch := ops.NewOpBatchDefault()
		if err := c.ShouldBindJSON(batch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var log bytes.Buffer
		rs, err := batch.ApplyAll(requestContext(base, &log))
		if rs == nil {
			rs = []*ops.Result{}
		}
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "results": rs, "log": log.String()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": rs, "log": log.String()})
	}
}
