// Package alerting fans out alert events raised by the journal when a
// component action cannot be delivered.
package alerting
