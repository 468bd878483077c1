// Package ir provides the immutable program model for SemioCore.
//
// This package contains value types only. All other internal packages
// import ir; ir imports nothing internal. This ensures the model remains
// the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Op, Context, Stmt, Program are values; derived programs are built
//     by copy-update (WithContext, WithSeed), never by mutating a shared
//     instance
//   - The canonical context string is an audit/reporting identity only;
//     semantic operator equality uses OpKey (name + arg rounded to 12
//     decimals), never string comparison
//   - All JSON tags use snake_case
package ir
