// Package core provides a small, stable facade over plugpack's internal
// builder for programs that want to produce plugin archives without shelling
// out to the CLI.
//
// Example:
//
//	res, err := core.Build(ctx, core.Config{SourceRoot: "my-plugin", OutputPath: "my-plugin.zip", DefaultExcludes: true})
//	if err != nil { /* handle */ }
//	_ = core.MarshalResult(os.Stdout, res)
package core
