package config

// SeedConfig names the accounts the reference server creates at startup.
type SeedConfig interface {
	GetSeedAdminNickname() string
	GetSeedAdminPassword() string
	GetSeedDemoPassword() string
}

type Seed struct {
	src source
}

var _ SeedConfig = Seed{}

func (s Seed) GetSeedAdminNickname() string {
	return s.src.get("SEED_ADMIN_NICKNAME", "admin")
}

// GetSeedAdminPassword is empty unless set; the server then generates one and
// logs it once.
func (s Seed) GetSeedAdminPassword() string {
	return s.src.get("SEED_ADMIN_PASSWORD", "")
}

// GetSeedDemoPassword is the password of the "demo" account created in DEV.
func (s Seed) GetSeedDemoPassword() string {
	return s.src.get("SEED_DEMO_PASSWORD", "demo1234")
}
