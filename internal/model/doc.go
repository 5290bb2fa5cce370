// Package model describes a unit as the authoring layer hands it to the
// driver: a flat variable table, the declared input and output groups, the
// auxiliary variables and the structural dependencies used to derive
// Jacobian and Hessian sparsity.
package model
