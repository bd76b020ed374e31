package tck

// Composed is the materialized result of merging one primitive contract
// with zero or more policy contracts: a deduplicated, flattened clause set
// and the union of their fixture requirements.
type Composed struct {
	Contracts   []*Contract
	Requirement Requirement
}

// Compose merges contracts into a single executable unit. The union is
// computed over capability interfaces, parameters and artifacts; two
// contracts declaring the same parameter or artifact name with different
// types make the composition fail with a *ConflictError. Composition is
// commutative and associative over the resulting clause set for
// non-conflicting contracts.
func Compose(primary *Contract, policies ...*Contract) (*Composed, error) {
	all := append([]*Contract{primary}, policies...)

	var out Composed
	seen := make(map[string]struct{})
	paramOwner := make(map[string]struct {
		spec  ParamSpec
		owner string
	})
	artifactOwner := make(map[string]struct {
		spec  ArtifactSpec
		owner string
	})
	capSeen := make(map[string]struct{})

	for _, c := range all {
		if c == nil {
			continue
		}
		if _, dup := seen[c.ID()]; dup {
			continue
		}
		seen[c.ID()] = struct{}{}
		out.Contracts = append(out.Contracts, c)

		for _, cap := range c.Requirement.Capabilities {
			if _, ok := capSeen[cap.String()]; ok {
				continue
			}
			capSeen[cap.String()] = struct{}{}
			out.Requirement.Capabilities = append(out.Requirement.Capabilities, cap)
		}

		for _, p := range c.Requirement.Params {
			prev, ok := paramOwner[p.Name]
			if !ok {
				paramOwner[p.Name] = struct {
					spec  ParamSpec
					owner string
				}{p, c.ID()}
				out.Requirement.Params = append(out.Requirement.Params, p)
				continue
			}
			if prev.spec.Type != p.Type {
				return nil, &ConflictError{
					Kind:       "parameter",
					Name:       p.Name,
					First:      prev.owner,
					Second:     c.ID(),
					FirstType:  prev.spec.Type,
					SecondType: p.Type,
				}
			}
			// Same name and type: the first declaration (and its
			// default) wins.
		}

		for _, a := range c.Requirement.Artifacts {
			prev, ok := artifactOwner[a.Name]
			if !ok {
				artifactOwner[a.Name] = struct {
					spec  ArtifactSpec
					owner string
				}{a, c.ID()}
				out.Requirement.Artifacts = append(out.Requirement.Artifacts, a)
				continue
			}
			if prev.spec.Type != a.Type {
				return nil, &ConflictError{
					Kind:       "artifact",
					Name:       a.Name,
					First:      prev.owner,
					Second:     c.ID(),
					FirstType:  prev.spec.Type,
					SecondType: a.Type,
				}
			}
			// A required declaration strengthens an optional one.
			if prev.spec.Optional && !a.Optional {
				for i := range out.Requirement.Artifacts {
					if out.Requirement.Artifacts[i].Name == a.Name {
						out.Requirement.Artifacts[i].Optional = false
					}
				}
				artifactOwner[a.Name] = struct {
					spec  ArtifactSpec
					owner string
				}{a, c.ID()}
			}
		}
	}
	return &out, nil
}

// ClauseCount reports the total number of clauses across the composed
// contracts.
func (c *Composed) ClauseCount() int {
	n := 0
	for _, ct := range c.Contracts {
		n += len(ct.clauses)
	}
	return n
}
