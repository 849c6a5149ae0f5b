// Package http implements the HTTP handlers of the tbsu service.
//
// Handlers stay thin: they decode and validate the request, call the
// domain package that does the work and render the result with
// go-chi/render. Failures go through errors.ErrorHandler so every error
// response is an RFC 7807 problem document:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Validation Failed",
//	    "status": 400,
//	    "detail": "key column \"c\" not found",
//	    "column": "c"
//	}
//
// Tables travel as {"columns": [...], "rows": [[...], ...]}. JSON numbers
// without a fraction become int64 cells, all others float64.
package http
