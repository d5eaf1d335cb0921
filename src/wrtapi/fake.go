package wrtapi

// FakeClient is an in-memory Client implementation for unit tests.
// Zero value: login succeeds with a fixed token, collect returns Archive,
// restore and reboot succeed and are recorded.
type FakeClient struct {
	Token      Session
	LoginErr   error
	Archive    []byte
	CollectErr error
	Restored   [][]byte
	RestoreErr error
	RebootErr  error
	Reboots    int
	StatusRes  SystemStatus
	StatusErr  error
}

func NewFake() *FakeClient {
	return &FakeClient{Token: "fake-session"}
}

func (f *FakeClient) Login(d Device) (Session, error) {
	if f.LoginErr != nil {
		return "", &AuthError{Device: d.Name, Cause: f.LoginErr}
	}
	return f.Token, nil
}

func (f *FakeClient) Collect(d Device, _ Session) ([]byte, error) {
	if f.CollectErr != nil {
		return nil, &CollectionError{Device: d.Name, Cause: f.CollectErr}
	}
	return f.Archive, nil
}

func (f *FakeClient) Restore(d Device, _ Session, data []byte) error {
	if f.RestoreErr != nil {
		return &RestoreError{Device: d.Name, Cause: f.RestoreErr}
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.Restored = append(f.Restored, cp)
	return nil
}

func (f *FakeClient) Reboot(d Device, _ Session) error {
	if f.RebootErr != nil {
		return f.RebootErr
	}
	f.Reboots++
	return nil
}

func (f *FakeClient) Status(d Device, _ Session) (SystemStatus, error) {
	if f.StatusErr != nil {
		return SystemStatus{}, f.StatusErr
	}
	return f.StatusRes, nil
}
