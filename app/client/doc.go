// Package client assembles one client context: the credential store with
// its memory, durable and cookie locations, the auth synchronizer, the
// backend client and the optimistic social service.
//
// Every piece shares one cookie jar, so a token written to the cookie
// location is sent on the next backend request the same way a browser
// would send it.
//
//	app, err := client.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer app.Close()
//
//	if err := app.Start(ctx); err != nil {
//		log.Warn("session check failed", logger.Error(err))
//	}
//	res, err := app.Social.ToggleLike(ctx, postID)
package client
