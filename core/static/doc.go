// Package static serves the front-end bundle.
//
// SPA serves files from any fs.FS (os.DirFS for a build directory, an
// embed.FS for a bundled placeholder) and falls back to the index for
// client-side routes:
//
//	h, err := static.SPA(os.DirFS("./dist"))
//	// GET /assets/app.1f2e.js → ./dist/assets/app.1f2e.js, cached as immutable
//	// GET /friends-list       → ./dist/index.html, no-cache
//	// GET /api/unknown        → 404
//
// The route guard runs in front of it, so the fallback only ever renders
// for visitors allowed to see the path.
package static
