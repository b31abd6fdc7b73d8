// Package types defines the Record model, the edit session state, the
// Updater and Table interfaces, and the standard errors shared by the
// rowedit packages.
package types
