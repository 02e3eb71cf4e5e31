// Package kv defines the byte key/value Store used for durable and
// session-scoped client storage, with in-memory and JSON-file
// implementations. A Redis-backed Store lives in
// integration/database/redis.
//
//	store := kv.NewFile(filepath.Join(dir, "credentials.json"))
//	_ = store.Set(ctx, "authToken", []byte(token), 0)
//	token, found, err := store.Get(ctx, "authToken")
//
// WithPrefix namespaces keys so several logical stores share one backend.
package kv
