package log

// Field keys shared by all estimators.
const (
	ModelNameKey  = "model.name"
	ComponentKey  = "ml.component"
	OperationKey  = "ml.operation"
	PhaseKey      = "ml.phase"
	StacktraceKey = "error.stacktrace"

	SamplesKey   = "data.samples"
	FeaturesKey  = "data.features"
	ClassesKey   = "data.classes"
	BatchSizeKey = "data.batch_size"

	EpochKey     = "training.epoch"
	StepKey      = "training.step"
	IterationKey = "training.iteration"
	PointsKey    = "training.points"

	LossKey      = "metrics.loss"
	ScoreKey     = "metrics.score"
	MaxDeltaKey  = "metrics.max_delta"
	NonZeroKey   = "metrics.nonzero"
	ObjectiveKey = "metrics.objective"

	LearningRateKey   = "hyperparams.learning_rate"
	RegularizationKey = "hyperparams.regularization"
	RandomSeedKey     = "config.random_seed"
	KernelKey         = "config.kernel"

	DurationMsKey  = "perf.duration_ms"
	PredsKey       = "preds.count"
	ModelNumberKey = "sweep.model_number"
)

// Values for OperationKey.
const (
	OperationFit      = "fit"
	OperationPredict  = "predict"
	OperationEvaluate = "evaluate"
	OperationSearch   = "search"
	OperationSweep    = "sweep"
)

// Values for PhaseKey.
const (
	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseTest       = "test"
	PhaseInference  = "inference"
)
