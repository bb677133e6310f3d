package driver

import "strconv"

// Compose builds the launch vector for a stage request. The base form is
// [binary, input_case, -c, output_case, -s, study]; when more than one
// CPU is requested the vector is prefixed with [wrapper, -np, N]. The
// transformation is deterministic and performs no validation.
func Compose(wrapper string, req StageRequest) []string {
	cmd := []string{req.Binary, req.InputCase, "-c", req.OutputCase, "-s", req.Study}
	if req.NumCPUs > 1 {
		cmd = append([]string{wrapper, "-np", strconv.Itoa(req.NumCPUs)}, cmd...)
	}
	return cmd
}
