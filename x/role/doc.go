/*
Package role tracks the lock-box engine owner ("admin") and the set of
relaying "manager" addresses. It is a leaf component consulted by every
role-gated engine operation.
*/
package role
