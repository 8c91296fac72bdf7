// Package paths resolves the per-user application data directory.
//
// The directory is chosen by platform class:
//   - windows: %APPDATA%\CrackedOura
//   - darwin:  ~/Library/Application Support/CrackedOura
//   - others:  ~/.local/share/CrackedOura
//
// When the platform directory cannot be created, resolution falls back to
// ~/.cracked_oura. The outcome of every resolution is reported explicitly:
//
//	res := paths.NewResolver(logger).Resolve()
//	switch res.Outcome {
//	case paths.Resolved, paths.ResolvedWithFallback:
//	    // res.Dir exists
//	case paths.Unresolved:
//	    // res.Dir may be empty or unusable, res.Err says why
//	}
//
// There is exactly one fallback tier and no retries.
package paths
