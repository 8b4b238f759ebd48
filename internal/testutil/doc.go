/*
Package testutil provides the floating-point and pixel comparison helpers
shared by the numerical test suites of the transform and root packages.
*/
package testutil
