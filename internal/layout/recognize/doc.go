// Package recognize detects repeated objects.
//
// Responsibilities: pairwise similarity predicates composed into a
// Recognizer, and the Engine that greedily partitions a population into
// templates and computes a mean representative for each.
// Key types: Recognizer, Template, Engine.
//
// Dependency rule: recognize depends on layout only. It never moves objects;
// its only side effect on an object is the template id.
package recognize
