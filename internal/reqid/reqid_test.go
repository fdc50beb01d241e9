// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reqid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMiddleware_GeneratesIDWhenHeaderAbsent(t *testing.T) {
	var gotFromContext string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFromContext = FromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	Middleware(next).ServeHTTP(rec, req)

	assert.NotEmpty(t, gotFromContext)
	assert.Equal(t, gotFromContext, rec.Header().Get(headerName))
}

func TestMiddleware_PropagatesCallerSuppliedID(t *testing.T) {
	var gotFromContext string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFromContext = FromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerName, "caller-id-123")
	rec := httptest.NewRecorder()
	Middleware(next).ServeHTTP(rec, req)

	assert.Equal(t, "caller-id-123", gotFromContext)
	assert.Equal(t, "caller-id-123", rec.Header().Get(headerName))
}

func TestFromContext_NoneSetReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", FromContext(context.Background()))
}
