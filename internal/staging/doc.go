// Package staging inspects and prunes job workdirs under the scratch root.
//
// A workdir is removable once its progress record reached validate, or,
// when an age limit is given, once it has not been touched for that long.
// Workdirs whose lock is held by a running job are never removed.
package staging
