// Package api dispatches calls to the v1 handler modules.
//
// Every handler is registered under a path such as "v1/pattern/save" together
// with a Schema describing its parameters. The Dispatcher validates and
// converts raw input against the schema before the handler runs, so handler
// bodies only ever see typed Params:
//
//	reg := api.NewRegistry()
//	reg.Register("v1/acgame", api.Schema{
//	    "id": {Type: api.Number, Required: true},
//	}, api.Handle(acGame))
//	reg.Register("v1/shop/destroy", api.Schema{
//	    "id": {Type: api.ShopID, Required: true},
//	}, destroyShop, api.Action())
//
//	d := api.NewDispatcher(reg, pool)
//	game, err := d.Call(ctx, userID, "v1/acgame", map[string]any{"id": "8"})
//
// Handlers call each other through Request.Query with the caller's user, and
// gate themselves with RequireUser, RequirePermission and RequireGroup. The
// only error meant for end users is *UserError; anything else is reported as
// an internal failure by the HTTP layer.
//
// GET /api/v1/* calls handlers as loaders (AsLoader); handlers registered
// with Action only answer POST.
package api
