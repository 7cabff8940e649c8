/*
Package errors implements custom error interfaces for the lockbox module.

The idea is to reuse as many errors from this package as possible and define
custom package errors when absolutely necessary. Errors are categorized by
their root error instance, created with the Register function. All runtime
errors must wrap a root error using Wrap or Wrapf so that automated callers
can branch on the failure cause with the root's Is method.
*/
package errors
