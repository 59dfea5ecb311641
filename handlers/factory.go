package handlers

import (
	"encoding/json"
	"net/http"

	"tourbook/database/query"
	"tourbook/database/repository"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// DefaultProtected are body keys clients may never write.
var DefaultProtected = []string{"_id", "id", "createdAt"}

// Resource produces the five CRUD handlers for one entity.
type Resource[T any] struct {
	Store repository.Store[T]
	// Scope returns a filter every list is restricted to.
	Scope        func(c *gin.Context) (bson.M, error)
	GetPopulate  []string
	ListPopulate []string
	// Protected body keys are dropped from create and update requests.
	Protected []string
	// Prepare adjusts a decoded document before it is created.
	Prepare func(c *gin.Context, doc *T) error
	// Authorize guards update and delete of one document.
	Authorize func(c *gin.Context, id string) error
}

func (r *Resource[T]) GetAll() gin.HandlerFunc {
	return func(c *gin.Context) {
		var base bson.M
		if r.Scope != nil {
			scope, err := r.Scope(c)
			if err != nil {
				fail(c, err)
				return
			}
			base = scope
		}

		f, err := query.Build(base, c.Request.URL.Query(), r.Store.Schema())
		if err != nil {
			fail(c, err)
			return
		}
		docs, err := r.Store.Find(c.Request.Context(), f, r.ListPopulate...)
		if err != nil {
			getLogger(c).Error("List query failed", zap.Error(err))
			fail(c, err)
			return
		}
		total, err := r.Store.CountDocuments(c.Request.Context(), f.Filter)
		if err != nil {
			fail(c, err)
			return
		}
		if docs == nil {
			docs = []T{}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"total":   total,
			"results": len(docs),
			"data":    docs,
		})
	}
}

func (r *Resource[T]) GetOne() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := r.Store.FindByID(c.Request.Context(), c.Param("id"), r.GetPopulate...)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": doc})
	}
}

func (r *Resource[T]) CreateOne() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := r.body(c)
		if err != nil {
			fail(c, err)
			return
		}

		var doc T
		raw, err := json.Marshal(body)
		if err == nil {
			err = json.Unmarshal(raw, &doc)
		}
		if err != nil {
			fail(c, err)
			return
		}
		if r.Prepare != nil {
			if err := r.Prepare(c, &doc); err != nil {
				fail(c, err)
				return
			}
		}

		if err := r.Store.Create(c.Request.Context(), &doc); err != nil {
			getLogger(c).Warn("Create failed", zap.Error(err))
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"status": "success", "data": doc})
	}
}

func (r *Resource[T]) UpdateOne() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if r.Authorize != nil {
			if err := r.Authorize(c, id); err != nil {
				fail(c, err)
				return
			}
		}
		body, err := r.body(c)
		if err != nil {
			fail(c, err)
			return
		}

		doc, err := r.Store.FindByIDAndUpdate(c.Request.Context(), id, bson.M(body))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": doc})
	}
}

func (r *Resource[T]) DeleteOne() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if r.Authorize != nil {
			if err := r.Authorize(c, id); err != nil {
				fail(c, err)
				return
			}
		}
		if _, err := r.Store.FindByIDAndDelete(c.Request.Context(), id); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// body decodes the JSON object of the request without protected keys.
func (r *Resource[T]) body(c *gin.Context) (map[string]any, error) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, err
	}
	for _, key := range DefaultProtected {
		delete(body, key)
	}
	for _, key := range r.Protected {
		delete(body, key)
	}
	return body, nil
}
