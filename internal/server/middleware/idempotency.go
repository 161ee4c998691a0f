package middleware

import (
	"bytes"
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated Idempotency-Key so
// a retried confirm cannot execute a second payment. Requests without a key
// pass through untouched.
func Idempotency(db *sql.DB, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Idempotency-Key")
		if key == "" {
			c.Next()
			return
		}

		var status int
		var body []byte
		err := db.QueryRowContext(c.Request.Context(),
			"SELECT response_status, response_body FROM idempotency_keys WHERE key_id = $1",
			key).Scan(&status, &body)
		if err == nil {
			logger.Info().Str("key", key).Msg("Idempotency hit, returning cached response")
			c.Header("X-Idempotency-Hit", "true")
			c.Data(status, "application/json", body)
			c.Abort()
			return
		}
		if err != sql.ErrNoRows {
			logger.Err(err).Str("key", key).Msg("Failed to look up idempotency key")
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = recorder

		c.Next()

		if !definitiveOutcome(recorder.Status()) {
			return
		}

		_, insertErr := db.ExecContext(c.Request.Context(),
			"INSERT INTO idempotency_keys (key_id, response_status, response_body) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING",
			key, recorder.Status(), recorder.body.Bytes())
		if insertErr != nil {
			logger.Err(insertErr).Str("key", key).Msg("Failed to save idempotency key")
		}
	}
}

// definitiveOutcome reports whether a response may be stored and replayed
// for its key. Server-side failures and in-flight conflicts are transient;
// replaying them would pin a retry to a failure that may have cleared.
func definitiveOutcome(status int) bool {
	return status < http.StatusInternalServerError && status != http.StatusConflict
}
