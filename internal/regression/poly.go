package regression

// PolynomialFeatures expands each row into its original columns followed
// by every degree-2 product x_i*x_j with i <= j. No bias column is added.
func PolynomialFeatures(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for r, row := range X {
		p := len(row)
		expanded := make([]float64, 0, p+p*(p+1)/2)
		expanded = append(expanded, row...)
		for i := range p {
			for j := i; j < p; j++ {
				expanded = append(expanded, row[i]*row[j])
			}
		}
		out[r] = expanded
	}
	return out
}

// PolynomialNames names the columns produced by PolynomialFeatures.
func PolynomialNames(names []string) []string {
	p := len(names)
	out := make([]string, 0, p+p*(p+1)/2)
	out = append(out, names...)
	for i := range p {
		for j := i; j < p; j++ {
			if i == j {
				out = append(out, names[i]+"^2")
			} else {
				out = append(out, names[i]+"*"+names[j])
			}
		}
	}
	return out
}
