// Package dto contains the request bodies of the Ledgerline HTTP API.
//
// Each request carries validate tags and converts itself into the matching
// domain input. Handlers parse with ParseAndValidate:
//
//	var req dto.WireRequest
//	if err := dto.ParseAndValidate(c, &req); err != nil {
//	    return h.fail(c, err)
//	}
//	wire, err := h.wires.Create(ctx, userID, req.ToInput())
package dto
