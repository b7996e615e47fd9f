// Package testsupport holds helpers shared by package tests: isolated
// configurations and pre-opened stores.
package testsupport
