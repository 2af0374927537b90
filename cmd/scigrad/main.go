// Package main provides the scigrad command line: eigendecomposition,
// linear solves and spline interpolation over CSV inputs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/scigrad-ml/scigrad/backend/cpu"
	"github.com/scigrad-ml/scigrad/internal/cli"
	"github.com/scigrad-ml/scigrad/internal/config"
	"github.com/scigrad-ml/scigrad/internal/serialization"
	"github.com/scigrad-ml/scigrad/interp"
	"github.com/scigrad-ml/scigrad/linalg"
	"github.com/scigrad-ml/scigrad/linop"
	"github.com/scigrad-ml/scigrad/tensor"
)

const version = "v0.1.0"

var (
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "scigrad",
	Short: "scigrad - differentiable scientific computing for Go",
	Long: `scigrad exposes the library's linear-algebra and interpolation
routines over CSV files: symmetric eigendecomposition, linear solves and
natural cubic spline evaluation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		zapCfg := zap.NewProductionConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(cfg.ZapLevel())
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("scigrad %s\n", version)
	},
}

var (
	eigInput  string
	eigNeig   int
	eigMethod string
	eigMode   string
	eigOutput string
)

var eigCmd = &cobra.Command{
	Use:   "eig",
	Short: "Eigenvalues and eigenvectors of a symmetric matrix",
	RunE: func(cmd *cobra.Command, args []string) error {
		mat, err := cli.ReadMatrix(eigInput)
		if err != nil {
			return err
		}

		backend := cpu.New()
		op, err := linop.NewMatrix(mat, backend, true)
		if err != nil {
			return err
		}

		neig := eigNeig
		if neig == 0 {
			neig = op.Rows()
		}
		logger.Debug("running symeig",
			zap.Int("n", op.Rows()),
			zap.Int("neig", neig),
			zap.String("method", eigMethod))

		evals, evecs, err := linalg.SymEig(op, neig, &linalg.SymEigOptions{
			Method: eigMethod,
			Mode:   linalg.Mode(eigMode),
			Logger: logger,
		})
		if err != nil {
			return err
		}

		if eigOutput != "" {
			return serialization.Save(eigOutput, map[string]*tensor.RawTensor{
				"eigenvalues":  evals,
				"eigenvectors": evecs,
			}, map[string]string{"method": eigMethod, "source": eigInput})
		}
		fmt.Println("eigenvalues:")
		if err := cli.WriteCSV(os.Stdout, evals); err != nil {
			return err
		}
		fmt.Println("eigenvectors (columns):")
		return cli.WriteCSV(os.Stdout, evecs)
	},
}

var (
	solveMatrix string
	solveRHS    string
	solveMethod string
	solveOutput string
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve A X = B for one or more right-hand sides",
	RunE: func(cmd *cobra.Command, args []string) error {
		mat, err := cli.ReadMatrix(solveMatrix)
		if err != nil {
			return err
		}
		rhs, err := cli.ReadMatrix(solveRHS)
		if err != nil {
			return err
		}

		backend := cpu.New()
		// CG requires a symmetric matrix; exact and GMRES do not.
		hermitian := solveMethod == "cg"
		op, err := linop.NewMatrix(mat, backend, hermitian)
		if err != nil {
			return err
		}

		logger.Debug("running solve",
			zap.Int("n", op.Rows()),
			zap.Int("nrhs", rhs.Shape()[1]),
			zap.String("method", solveMethod))

		x, err := linalg.Solve(op, rhs, &linalg.SolveOptions{
			Method: solveMethod,
			Logger: logger,
		})
		if err != nil {
			return err
		}

		if solveOutput != "" {
			return serialization.Save(solveOutput, map[string]*tensor.RawTensor{"solution": x},
				map[string]string{"method": solveMethod, "matrix": solveMatrix, "rhs": solveRHS})
		}
		return cli.WriteCSV(os.Stdout, x)
	},
}

var (
	interpPoints string
	interpAt     string
	interpKind   string
	interpOutput string
)

var interpCmd = &cobra.Command{
	Use:   "interp",
	Short: "Interpolate sampled data at query points",
	RunE: func(cmd *cobra.Command, args []string) error {
		x, y, err := cli.ReadPoints(interpPoints)
		if err != nil {
			return err
		}
		xq, err := cli.ReadVector(interpAt)
		if err != nil {
			return err
		}

		backend := cpu.New()
		logger.Debug("interpolating",
			zap.Int("samples", x.NumElements()),
			zap.Int("queries", xq.NumElements()),
			zap.String("kind", interpKind))

		var yq *tensor.RawTensor
		switch interpKind {
		case "cspline":
			spline, err := interp.NewCubicSpline1D(x, backend, nil)
			if err != nil {
				return err
			}
			yq, err = spline.EvalWith(xq, y)
			if err != nil {
				return err
			}
		case "linear":
			lin, err := interp.NewLinear1D(x, backend)
			if err != nil {
				return err
			}
			yq, err = lin.Eval(xq, y)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown interpolation kind %q (want cspline or linear)", interpKind)
		}

		if interpOutput != "" {
			return serialization.Save(interpOutput, map[string]*tensor.RawTensor{"values": yq},
				map[string]string{"kind": interpKind, "points": interpPoints})
		}
		return cli.WriteCSV(os.Stdout, yq)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	eigCmd.Flags().StringVar(&eigInput, "input", "", "CSV file with the symmetric matrix (required)")
	eigCmd.Flags().IntVar(&eigNeig, "neig", 0, "number of eigenpairs (default: all)")
	eigCmd.Flags().StringVar(&eigMethod, "method", "exact", "exact or davidson")
	eigCmd.Flags().StringVar(&eigMode, "mode", "lowest", "lowest or uppest")
	eigCmd.Flags().StringVar(&eigOutput, "output", "", "write results to a .sgt file instead of stdout")
	_ = eigCmd.MarkFlagRequired("input")

	solveCmd.Flags().StringVar(&solveMatrix, "matrix", "", "CSV file with the system matrix (required)")
	solveCmd.Flags().StringVar(&solveRHS, "rhs", "", "CSV file with the right-hand sides (required)")
	solveCmd.Flags().StringVar(&solveMethod, "method", "exact", "exact, cg or gmres")
	solveCmd.Flags().StringVar(&solveOutput, "output", "", "write results to a .sgt file instead of stdout")
	_ = solveCmd.MarkFlagRequired("matrix")
	_ = solveCmd.MarkFlagRequired("rhs")

	interpCmd.Flags().StringVar(&interpPoints, "points", "", "CSV file with x,y sample pairs (required)")
	interpCmd.Flags().StringVar(&interpAt, "at", "", "CSV file with query points (required)")
	interpCmd.Flags().StringVar(&interpKind, "kind", "cspline", "cspline or linear")
	interpCmd.Flags().StringVar(&interpOutput, "output", "", "write results to a .sgt file instead of stdout")
	_ = interpCmd.MarkFlagRequired("points")
	_ = interpCmd.MarkFlagRequired("at")

	rootCmd.AddCommand(versionCmd, eigCmd, solveCmd, interpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
