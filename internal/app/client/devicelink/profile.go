package devicelink

// Идентификаторы сервисов и характеристик бутылки
const (
	DefaultDeviceName = "h2oDB618BB"
	DefaultNamePrefix = "h2o"
	DefaultCapacityMl = 591

	// основной профиль
	ServiceUser  = "bf2d1ba0-c473-49f2-9571-0ce69036c642"
	CharUserData = "bf2d1ba1-c473-49f2-9571-0ce69036c642"

	// устаревший профиль с управляющими характеристиками
	ServiceLegacy  = "45855422-6565-4cd7-a2a9-fe8af41b85e8"
	CharLegacyData = "016e11b1-6c8a-4074-9e5a-076053f93784"
	CharSetPoint   = "b44b03f0-b850-4090-86eb-72863fb3618d"
	CharDebug      = "e3578b0d-caa7-46d6-b7c2-7331c08de044"
	CharLED        = "a1d9a5bf-f5d8-49f3-a440-e6bf27440cb0"

	ServiceBattery   = "0000180f-0000-1000-8000-00805f9b34fb"
	CharBatteryLevel = "00002a19-0000-1000-8000-00805f9b34fb"
)

var (
	cmdReady = []byte{0x57}
	cmdPulse = []byte{0x02}
)

// ControlTarget управляющая характеристика, в которую пишется команда
type ControlTarget string

const (
	TargetDebug    ControlTarget = "debug"
	TargetSetPoint ControlTarget = "set_point"
)

// Command одна команда рукопожатия в hex
type Command struct {
	Target ControlTarget
	Hex    string
}

// HandshakeSequence порядок команд значим
var HandshakeSequence = []Command{
	{TargetDebug, "2100d1"},
	{TargetSetPoint, "92"},
	{TargetDebug, "2200f7"},
	{TargetSetPoint, "7700000032d70000"},
	{TargetSetPoint, "00341b00e0790000"},
	{TargetSetPoint, "02345200c0a80000"},
	{TargetSetPoint, "03346e0030c00000"},
	{TargetSetPoint, "04348900a0d70000"},
	{TargetSetPoint, "0534a50010ef0000"},
	{TargetSetPoint, "0634c00080060100"},
	{TargetSetPoint, "0734dc00f01d0100"},
	{TargetSetPoint, "0834000000000000"},
	{TargetSetPoint, "0934000000000000"},
}
