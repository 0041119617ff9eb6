// Package spec is the execution engine: a tree of Groups holding hooks,
// fixtures and Examples, run depth-first in declaration order.
//
// Blocks come in two flavours chosen at registration. Synchronous blocks
// (Example, Before, After) complete when they return and fail by panicking,
// which is what the assertion handle does. Asynchronous blocks (ExampleAsync,
// BeforeAsync, AfterAsync) run on their own goroutine and complete when they
// call the Done they were given, when their timeout elapses, when they panic,
// or when the run context is cancelled, whichever happens first.
//
// Every example gets a fresh Context holding its fixture cache, assertion
// counter and error interceptor. An example that never touches the assertion
// handle is reported as pending.
//
// Lifecycle events are delivered to a Reporter in a fixed order:
//
//	suiteStart
//	  groupStart
//	    exampleStart, exampleComplete, examplePass|examplePend|exampleFail|exampleError
//	  groupComplete
//	suiteComplete
package spec
