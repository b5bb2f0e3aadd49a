package asm

// Z80 opcode byte constants used by pkg/rom and pkg/repl.
const (
	OpNOP     = 0x00
	OpLdBCNN  = 0x01
	OpLdDENN  = 0x11
	OpLdHLNN  = 0x21
	OpLdSPNN  = 0x31
	OpLdAN    = 0x3E
	OpLdBN    = 0x06
	OpLdCN    = 0x0E
	OpLdDN    = 0x16
	OpLdEN    = 0x1E
	OpLdHN    = 0x26
	OpLdLN    = 0x2E

	OpLdAHL = 0x7E
	OpLdADE = 0x1A
	OpLdABC = 0x0A
	OpLdHLA = 0x77
	OpLdDEA = 0x12
	OpLdBCA = 0x02
	OpLdHLN = 0x36 // LD (HL),n

	OpLdAB = 0x78
	OpLdAC = 0x79
	OpLdAD = 0x7A
	OpLdAE = 0x7B
	OpLdAH = 0x7C
	OpLdAL = 0x7D
	OpLdBA = 0x47
	OpLdCA = 0x4F
	OpLdDA = 0x57
	OpLdEA = 0x5F
	OpLdHA = 0x67
	OpLdLA = 0x6F

	OpLdBHL = 0x46
	OpLdCHL = 0x4E
	OpLdDHL = 0x56
	OpLdEHL = 0x5E
	OpLdHHL = 0x66
	OpLdLHL = 0x6E

	OpLdHLB = 0x70
	OpLdHLC = 0x71
	OpLdHLD = 0x72
	OpLdHLE = 0x73

	OpLdBC_ = 0x41
	OpLdBD  = 0x42
	OpLdBE  = 0x43
	OpLdCB  = 0x48
	OpLdCD  = 0x4A
	OpLdCE  = 0x4B
	OpLdDB  = 0x50
	OpLdDC  = 0x51
	OpLdEB  = 0x58
	OpLdEC  = 0x59
	OpLdHB  = 0x60
	OpLdHD  = 0x62
	OpLdHE  = 0x63
	OpLdLB  = 0x68
	OpLdLD  = 0x6A
	OpLdLE  = 0x6B

	OpIncHL = 0x23
	OpDecHL = 0x2B
	OpIncDE = 0x13
	OpDecDE = 0x1B
	OpIncBC = 0x03
	OpDecBC = 0x0B
	OpIncA  = 0x3C
	OpDecA  = 0x3D
	OpIncB  = 0x04
	OpDecB  = 0x05
	OpIncC  = 0x0C
	OpDecC  = 0x0D
	OpIncD  = 0x14
	OpDecD  = 0x15
	OpIncE  = 0x1C
	OpDecE  = 0x1D
	OpIncH  = 0x24
	OpDecH  = 0x25
	OpIncL  = 0x2C
	OpDecL  = 0x2D

	OpAddAA  = 0x87
	OpAddAB  = 0x80
	OpAddAC  = 0x81
	OpAddAD  = 0x82
	OpAddAE  = 0x83
	OpAddAH  = 0x84
	OpAddAL  = 0x85
	OpAddAHL = 0x86
	OpAddAN  = 0xC6

	OpAdcAA  = 0x8F
	OpAdcAB  = 0x88
	OpAdcAC  = 0x89
	OpAdcAD  = 0x8A
	OpAdcAE  = 0x8B
	OpAdcAHL = 0x8E
	OpAdcAN  = 0xCE

	OpSubA  = 0x97
	OpSubB  = 0x90
	OpSubC  = 0x91
	OpSubD  = 0x92
	OpSubE  = 0x93
	OpSubH  = 0x94
	OpSubL  = 0x95
	OpSubHL = 0x96
	OpSubN  = 0xD6

	OpSbcAA  = 0x9F
	OpSbcAB  = 0x98
	OpSbcAC  = 0x99
	OpSbcAD  = 0x9A
	OpSbcAE  = 0x9B
	OpSbcAHL = 0x9E
	OpSbcAN  = 0xDE

	OpAndA  = 0xA7
	OpAndB  = 0xA0
	OpAndC  = 0xA1
	OpAndHL = 0xA6
	OpAndN  = 0xE6

	OpOrA  = 0xB7
	OpOrB  = 0xB0
	OpOrC  = 0xB1
	OpOrD  = 0xB2
	OpOrE  = 0xB3
	OpOrH  = 0xB4
	OpOrL  = 0xB5
	OpOrHL = 0xB6
	OpOrN  = 0xF6

	OpXorA  = 0xAF
	OpXorB  = 0xA8
	OpXorC  = 0xA9
	OpXorHL = 0xAE
	OpXorN  = 0xEE

	OpCpA  = 0xBF
	OpCpB  = 0xB8
	OpCpC  = 0xB9
	OpCpD  = 0xBA
	OpCpE  = 0xBB
	OpCpH  = 0xBC
	OpCpL  = 0xBD
	OpCpHL = 0xBE
	OpCpN  = 0xFE

	OpDAA = 0x27
	OpCPL = 0x2F
	OpNEG = 0x44 // ED-prefixed
	OpSCF = 0x37
	OpCCF = 0x3F

	OpRLCA = 0x07
	OpRRCA = 0x0F
	OpRLA  = 0x17
	OpRRA  = 0x1F

	OpJpNN  = 0xC3
	OpJpZNN = 0xCA
	OpJpNZNN = 0xC2
	OpJpCNN = 0xDA
	OpJpNCNN = 0xD2
	OpJpMNN = 0xFA
	OpJpPNN = 0xF2
	OpJpHL  = 0xE9

	OpJrN   = 0x18
	OpJrZN  = 0x28
	OpJrNZN = 0x20
	OpJrCN  = 0x38
	OpJrNCN = 0x30
	OpDjnzN = 0x10

	OpCallNN  = 0xCD
	OpCallZNN = 0xCC
	OpCallNZNN = 0xC4
	OpCallCNN = 0xDC
	OpCallNCNN = 0xD4
	OpRet     = 0xC9
	OpRetZ    = 0xC8
	OpRetNZ   = 0xC0
	OpRetC    = 0xD8
	OpRetNC   = 0xD0

	OpPushAF = 0xF5
	OpPushBC = 0xC5
	OpPushDE = 0xD5
	OpPushHL = 0xE5
	OpPopAF  = 0xF1
	OpPopBC  = 0xC1
	OpPopDE  = 0xD1
	OpPopHL  = 0xE1

	OpExDEHL  = 0xEB
	OpExSPHL  = 0xE3
	OpEXX     = 0xD9
	OpExAFAF  = 0x08

	OpLdNNHL    = 0x22
	OpLdHLNNInd = 0x2A
	OpLdNNA     = 0x32
	OpLdANNInd  = 0x3A

	OpAddHLBC = 0x09
	OpAddHLDE = 0x19
	OpAddHLHL = 0x29
	OpAddHLSP = 0x39

	OpHALT = 0x76
	OpDI   = 0xF3
	OpEI   = 0xFB

	OpOutNA = 0xD3
	OpInAN  = 0xDB

	OpEDPrefix = 0xED
	OpCBPrefix = 0xCB
	OpIXPrefix = 0xDD
	OpLDIR     = 0xB0 // ED-prefixed
	OpLDDR     = 0xB8 // ED-prefixed
	OpCPIR     = 0xB1 // ED-prefixed
	OpSbcHLBC  = 0x42 // ED-prefixed
	OpSbcHLDE  = 0x52 // ED-prefixed
	OpAdcHLBC  = 0x4A // ED-prefixed
	OpAdcHLDE  = 0x5A // ED-prefixed
	OpLdNNBC   = 0x43 // ED-prefixed
	OpLdNNDE   = 0x53 // ED-prefixed
	OpLdBCNNInd = 0x4B // ED-prefixed
	OpLdDENNInd = 0x5B // ED-prefixed
)
