// Package report renders the plain-text analysis summary.
package report
