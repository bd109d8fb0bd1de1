// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"

	"github.com/MKhiriev/go-doc-locker/internal/utils"
)

// CheckHTTPMethod is registered as the router's MethodNotAllowed handler.
//
// Chi answers 405 when a path matches but the method does not. This handler
// answers 404 instead, so unsupported methods do not reveal which paths
// exist. Chi only reaches it after the method lookup on the matched route
// has failed, and mounted sub-routers inherit it, so it never hands the
// request back to the router.
func CheckHTTPMethod(w http.ResponseWriter, _ *http.Request) {
	utils.WriteError(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}
