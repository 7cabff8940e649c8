/*
Package manager relays lock box events between the two engines of a swap
pair. A relay holds a manager identity registered on both engines and
performs the two privileged mirror operations: opening the withdraw box
when a deposit is observed, and closing the deposit once the secret key
is revealed on the withdraw side.
*/
package manager
