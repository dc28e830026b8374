// Package validation implements the idea-validation job lifecycle.
//
// The service layer owns creation, background processing and retrieval of
// validation jobs. It depends on the repository interface defined in this
// package and should never import from handler code. Repository
// implementations live in repository/postgres/.
package validation
