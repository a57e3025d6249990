// Package fileutil provides workspace scanning utilities for discovering
// native source and header files by conventional extensions.
package fileutil
