// Package testsupport provides fixtures shared by package tests: temp-dir
// configs, stub worker scripts, sized files and an opened history store.
package testsupport
