package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAccessLogSignature_EndToEnd records attempts over HTTP, verifies their signatures and
// then detects a row tampered with directly in the database.
func TestAccessLogSignature_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	for _, target := range dbTargets {
		t.Run(target.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, target.driver)
			accessKey := ctx.createRecipient(t, "carla", true)

			start := time.Now().UTC().Add(-time.Minute)

			resp, _ := ctx.verify(t, "carla", accessKey, "192.0.2.10")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			resp, _ = ctx.verify(t, "carla", "not-the-key", "192.0.2.11")
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			end := time.Now().UTC().Add(time.Minute)

			accessLogUseCase, err := ctx.container.AccessLogUseCase()
			require.NoError(t, err)

			t.Run("AllSignaturesValid", func(t *testing.T) {
				views, err := accessLogUseCase.ListRecent(context.Background(), 10)
				require.NoError(t, err)
				require.Len(t, views, 2)
				for _, view := range views {
					assert.True(t, view.IsSigned(), "attempt %s should be signed", view.ID)
				}

				report, err := accessLogUseCase.VerifyBatch(context.Background(), start, end)
				require.NoError(t, err)
				assert.Equal(t, int64(2), report.TotalChecked)
				assert.Equal(t, int64(2), report.SignedCount)
				assert.Equal(t, int64(2), report.ValidCount)
				assert.True(t, report.Passed())
			})

			t.Run("TamperedRowDetected", func(t *testing.T) {
				_, err := ctx.db.ExecContext(
					context.Background(),
					"UPDATE access_attempts SET client_id = 'tampered' WHERE NOT success",
				)
				require.NoError(t, err)

				report, err := accessLogUseCase.VerifyBatch(context.Background(), start, end)
				require.NoError(t, err)
				assert.Equal(t, int64(2), report.TotalChecked)
				assert.Equal(t, int64(1), report.ValidCount)
				assert.Equal(t, int64(1), report.InvalidCount)
				assert.Len(t, report.InvalidIDs, 1)
				assert.False(t, report.Passed())
			})
		})
	}
}
