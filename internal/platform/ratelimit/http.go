// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/taibuivan/staffdesk/internal/platform/apperr"
	requestutil "github.com/taibuivan/staffdesk/internal/platform/request"
	"github.com/taibuivan/staffdesk/internal/platform/respond"
)

/*
Middleware limits every request by client IP under bucket.

Admitted responses carry X-RateLimit-Limit, X-RateLimit-Remaining and
X-RateLimit-Reset. Rejections are 429 envelopes with Retry-After.
*/
func Middleware(limiter *Limiter, bucket string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := request.Context()
			identifier := requestutil.ClientIP(request)

			if !limiter.Check(ctx, identifier, bucket, limit, window) {
				writer.Header().Set("Retry-After", strconv.Itoa(int(window/time.Second)))
				respond.Error(writer, request, apperr.TooManyRequests(
					fmt.Sprintf("Rate limit exceeded for %s. Please try again later.", bucket),
				))
				return
			}

			status := limiter.Status(ctx, identifier, bucket, limit, window)
			header := writer.Header()
			header.Set("X-RateLimit-Limit", strconv.Itoa(status.Limit))
			header.Set("X-RateLimit-Remaining", strconv.Itoa(status.Remaining))
			header.Set("X-RateLimit-Reset", strconv.FormatInt(status.ResetAt.Unix(), 10))

			next.ServeHTTP(writer, request)
		})
	}
}
