package format

// Counts is the number of containers per status bucket.
type Counts struct {
	Total   int `json:"total"`
	Running int `json:"running"`
	Exited  int `json:"exited"`
	Created int `json:"created"`
	Paused  int `json:"paused"`
	Other   int `json:"other"`
}

// Add returns the element-wise sum of c and o.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		Total:   c.Total + o.Total,
		Running: c.Running + o.Running,
		Exited:  c.Exited + o.Exited,
		Created: c.Created + o.Created,
		Paused:  c.Paused + o.Paused,
		Other:   c.Other + o.Other,
	}
}

// Buckets groups views by status, keeping the input order inside each group.
type Buckets struct {
	Running []ContainerView `json:"running"`
	Exited  []ContainerView `json:"exited"`
	Created []ContainerView `json:"created"`
	Paused  []ContainerView `json:"paused"`
	Other   []ContainerView `json:"other"`
}

// Bucket splits views into status groups.
func Bucket(views []ContainerView) Buckets {
	b := Buckets{
		Running: []ContainerView{},
		Exited:  []ContainerView{},
		Created: []ContainerView{},
		Paused:  []ContainerView{},
		Other:   []ContainerView{},
	}
	for _, v := range views {
		switch v.Status {
		case StatusRunning:
			b.Running = append(b.Running, v)
		case StatusExited:
			b.Exited = append(b.Exited, v)
		case StatusCreated:
			b.Created = append(b.Created, v)
		case StatusPaused:
			b.Paused = append(b.Paused, v)
		default:
			b.Other = append(b.Other, v)
		}
	}
	return b
}

// Counts tallies the buckets.
func (b Buckets) Counts() Counts {
	c := Counts{
		Running: len(b.Running),
		Exited:  len(b.Exited),
		Created: len(b.Created),
		Paused:  len(b.Paused),
		Other:   len(b.Other),
	}
	c.Total = c.Running + c.Exited + c.Created + c.Paused + c.Other
	return c
}
