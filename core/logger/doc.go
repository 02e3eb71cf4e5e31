// Package logger builds slog loggers and provides attribute helpers shared by
// every component.
//
//	log := logger.New(logger.WithDevelopment("socialsync"))
//	log.Info("credential written",
//		logger.Component("credential"),
//		logger.Location("durable"),
//		logger.UserID(user.ID),
//	)
//
// Helpers return an empty slog.Attr for zero input, which slog drops, so
// logger.Error(nil) is safe to pass.
//
// Components accept a *slog.Logger through an option and fall back to
// Discard when none is given.
package logger
