package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "tb"

	// DocumentModulePrefix 文档解码模块
	DocumentModulePrefix = "doc"

	// EntityText 文本实体
	EntityText = "text"

	// KeyDecodedText 文档解码结果缓存 (STRING)
	// 格式: tb:doc:text:{format}:{md5}
	KeyDecodedText = AppPrefix + ":" + DocumentModulePrefix + ":" + EntityText + ":%s"
)
