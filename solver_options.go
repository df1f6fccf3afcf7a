// Copyright 2025 Contriboss
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipgrub

import "log/slog"

// SolverOptions configures the behavior of the dependency solver.
type SolverOptions struct {
	// MaxSteps limits the number of solver iterations.
	// Set to 0 to disable the limit (not recommended for untrusted inputs).
	// Default: 100000
	MaxSteps int

	// Logger enables debug logging of solver operations.
	// When nil, no logging is performed.
	Logger *slog.Logger

	// Environment supplies the values environment markers are evaluated
	// against. Defaults to the running platform, see DefaultEnvironment.
	Environment TargetEnvironment
}

// SolverOption is a functional option for configuring the solver.
type SolverOption func(*SolverOptions)

const defaultMaxSteps = 100000

func defaultSolverOptions() SolverOptions {
	return SolverOptions{
		MaxSteps:    defaultMaxSteps,
		Environment: DefaultEnvironment(),
	}
}

// WithMaxSteps sets the maximum number of solver iterations.
// Use 0 to disable the limit (allows unbounded execution).
//
// The iteration limit prevents runaway resolution in pathological cases.
// Most real-world dependency graphs resolve in thousands of steps.
func WithMaxSteps(maxSteps int) SolverOption {
	return func(opts *SolverOptions) {
		opts.MaxSteps = maxSteps
	}
}

// WithLogger enables debug logging through the given slog logger.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	}))
//	solver := NewSolver(provider, WithLogger(logger))
func WithLogger(logger *slog.Logger) SolverOption {
	return func(opts *SolverOptions) {
		opts.Logger = logger
	}
}

// WithEnvironment overrides the marker evaluation environment, which lets
// a resolution target a platform other than the one the solver runs on.
//
// Example:
//
//	env := TargetEnvironment{
//	    PythonVersion:  "3.9",
//	    SysPlatform:    "win32",
//	    PlatformSystem: "Windows",
//	}
//	solver := NewSolver(provider, WithEnvironment(env))
func WithEnvironment(env TargetEnvironment) SolverOption {
	return func(opts *SolverOptions) {
		opts.Environment = env
	}
}
