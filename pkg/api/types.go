package api

import "encoding/json"

// ListCardRequest is the body posted to the card listing endpoint. Optional
// fields are pointers so unset filters are omitted from the payload.
type ListCardRequest struct {
	RegistryType            string            `json:"registry_type"`
	Name                    *string           `json:"name"`
	Repository              *string           `json:"repository"`
	Version                 *string           `json:"version"`
	UID                     *string           `json:"uid"`
	Limit                   *int              `json:"limit"`
	Tags                    map[string]string `json:"tags"`
	MaxDate                 *string           `json:"max_date"`
	IgnoreReleaseCandidates bool              `json:"ignore_release_candidates"`
}

// Card is one catalog record in a registry listing.
type Card struct {
	Name       string            `json:"name"`
	Repository string            `json:"repository"`
	Date       *string           `json:"date"`
	Contact    string            `json:"contact"`
	Version    string            `json:"version"`
	UID        string            `json:"uid"`
	Tags       map[string]string `json:"tags"`
}

type ListCardResponse struct {
	Cards []Card `json:"cards"`
}

// ModelMetadataRequest resolves a model reference to its metadata record.
type ModelMetadataRequest struct {
	Name                    *string `json:"name"`
	Version                 *string `json:"version"`
	Repository              *string `json:"repository"`
	UID                     *string `json:"uid"`
	IgnoreReleaseCandidates bool    `json:"ignore_release_candidates"`
}

type Feature struct {
	FeatureType string          `json:"feature_type"`
	Shape       json.RawMessage `json:"shape"`
}

type DataSchema struct {
	DataType           *string            `json:"data_type"`
	InputFeatures      map[string]Feature `json:"input_features"`
	OutputFeatures     map[string]Feature `json:"output_features"`
	OnnxInputFeatures  map[string]Feature `json:"onnx_input_features"`
	OnnxOutputFeatures map[string]Feature `json:"onnx_output_features"`
	OnnxDataType       *string            `json:"onnx_data_type"`
	OnnxVersion        *string            `json:"onnx_version"`
}

// ModelMetadata is the server-issued record for one model version. The
// storage URIs are logical registry paths, not fetchable URLs.
type ModelMetadata struct {
	ModelName            string     `json:"model_name"`
	ModelClass           string     `json:"model_class"`
	ModelType            string     `json:"model_type"`
	ModelInterface       string     `json:"model_interface"`
	OnnxURI              *string    `json:"onnx_uri"`
	OnnxVersion          *string    `json:"onnx_version"`
	ModelURI             string     `json:"model_uri"`
	ModelVersion         string     `json:"model_version"`
	ModelRepository      string     `json:"model_repository"`
	SampleDataURI        string     `json:"sample_data_uri"`
	DataSchema           DataSchema `json:"data_schema"`
	PreprocessorURI      *string    `json:"preprocessor_uri"`
	PreprocessorName     *string    `json:"preprocessor_name"`
	TokenizerURI         *string    `json:"tokenizer_uri"`
	TokenizerName        *string    `json:"tokenizer_name"`
	FeatureExtractorURI  *string    `json:"feature_extractor_uri"`
	FeatureExtractorName *string    `json:"feature_extractor_name"`
	QuantizedModelURI    *string    `json:"quantized_model_uri"`
}

type ListFileResponse struct {
	Files []string `json:"files"`
}

// PresignedURL is a short-lived grant for one anonymous fetch of one remote
// file. It is requested fresh for every download attempt and never reused.
type PresignedURL struct {
	URL string `json:"url"`
}

type Metric struct {
	RunUID    string          `json:"run_uid"`
	Name      string          `json:"name"`
	Value     json.RawMessage `json:"value"`
	Step      json.RawMessage `json:"step"`
	Timestamp json.RawMessage `json:"timestamp"`
}

type ListMetricResponse struct {
	Metric []Metric `json:"metric"`
}

// CompareMetricRequest pits a challenger run against one or more champions
// on the named metrics.
type CompareMetricRequest struct {
	MetricName    []string `json:"metric_name"`
	LowerIsBetter []bool   `json:"lower_is_better"`
	ChallengerUID string   `json:"challenger_uid"`
	ChampionUID   []string `json:"champion_uid"`
}

type BattleReport struct {
	ChampionName     string  `json:"champion_name"`
	ChampionVersion  string  `json:"champion_version"`
	ChampionMetric   *Metric `json:"champion_metric"`
	ChallengerMetric *Metric `json:"challenger_metric"`
	ChallengerWin    bool    `json:"challenger_win"`
}

type CompareMetricResponse struct {
	ChallengerName    string                    `json:"challenger_name"`
	ChallengerVersion string                    `json:"challenger_version"`
	Report            map[string][]BattleReport `json:"report"`
}
