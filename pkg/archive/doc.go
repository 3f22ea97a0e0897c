// Package archive keeps every menu fetched from the menu source in an
// embedded BadgerDB, so past announcements can be reproduced and the bot can
// run without network access to the menu source.
package archive
